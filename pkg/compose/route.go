package compose

import "github.com/tc-functors/tc/pkg/topology"

// buildRoute implements spec.md §4.3's Route builder.
func (c *Composer) buildRoute(spec *topology.RouteSpec, parent *topology.TopologySpec) *Route {
	method := spec.Method
	if method == "" {
		method = topology.MethodPOST
	}
	gateway := spec.Gateway
	if gateway == "" {
		gateway = parent.FQN
	}

	r := &Route{
		Method:     method,
		Path:       spec.Path,
		Gateway:    gateway,
		Authorizer: spec.Authorizer,
		Stage:      spec.Stage,
		IsAsync:    spec.IsAsync,
		CORS:       resolveCORS(spec.CORS),
		Skip:       spec.Skip,
	}
	if r.Path == "" {
		r.Path = routeNameOf(spec)
	}
	r.RoleARN = c.eventRoleARN()
	r.Target = c.routeTarget(spec, parent)
	return r
}

func routeNameOf(spec *topology.RouteSpec) string {
	switch {
	case spec.Function != "":
		return "/" + spec.Function
	case spec.Event != "":
		return "/" + spec.Event
	case spec.Queue != "":
		return "/" + spec.Queue
	case spec.StepFunction != "":
		return "/" + spec.StepFunction
	default:
		return "/"
	}
}

func (c *Composer) routeTarget(spec *topology.RouteSpec, parent *topology.TopologySpec) RouteTarget {
	switch {
	case spec.Function != "":
		arn := ""
		if fn, ok := parent.Functions[spec.Function]; ok && c.Auth != nil {
			arn = c.Auth.FunctionARN(fn.FQN)
		}
		return RouteTarget{Entity: TargetFunction, Name: spec.Function, ARN: arn}
	case spec.Event != "":
		return RouteTarget{
			Entity:        TargetState,
			Name:          spec.Event,
			RequestParams: requestParamsForMethod(string(routeMethodOrDefault(spec.Method))),
		}
	case spec.Queue != "":
		return RouteTarget{Entity: TargetQueue, Name: spec.Queue}
	default:
		arn := ""
		if c.Auth != nil {
			arn = c.Auth.StateMachineARN(parent.FQN)
		}
		return RouteTarget{
			Entity:        TargetState,
			Name:          spec.StepFunction,
			ARN:           arn,
			RequestParams: map[string]string{"template": string(requestTemplateOrDefault(spec.RequestTemplate))},
		}
	}
}

func routeMethodOrDefault(m topology.RouteMethod) topology.RouteMethod {
	if m == "" {
		return topology.MethodPOST
	}
	return m
}

// requestTemplateOrDefault picks the Input template flavor for
// state-machine-targeted routes: merged | detail | null (spec.md §4.3).
func requestTemplateOrDefault(t string) string {
	switch t {
	case "merged", "detail", "null":
		return t
	default:
		return "merged"
	}
}

// requestParamsForMethod maps an HTTP method to the event-detail fields
// EventBridge integrations draw from (body for writes, path for reads).
func requestParamsForMethod(method string) map[string]string {
	switch method {
	case "GET", "DELETE":
		return map[string]string{"source": "path"}
	default:
		return map[string]string{"source": "body"}
	}
}

func resolveCORS(spec *topology.CORSSpec) topology.CORSSpec {
	cors := topology.CORSSpec{Methods: []string{"*"}, Origins: []string{"*"}, Headers: []string{"*"}}
	if spec == nil {
		return cors
	}
	if len(spec.Methods) > 0 {
		cors.Methods = spec.Methods
	}
	if len(spec.Origins) > 0 {
		cors.Origins = spec.Origins
	}
	if len(spec.Headers) > 0 {
		cors.Headers = spec.Headers
	}
	return cors
}
