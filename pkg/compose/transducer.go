package compose

import (
	"path/filepath"

	"github.com/tc-functors/tc/pkg/topology"
)

// transducerHandlerSource is the tiny built-in handler shipped with every
// transducer: it reads manifest.json (rendered by the builder at build
// time, spec.md §4.3) and fans the incoming event out to each configured
// target for the upstream function ARN the event carries, dispatching by
// kind (EventBridge put-events, Lambda invoke, AppSync mutation over
// HTTP, or an API destination POST for channels). tc owns this source,
// not the user's repo.
const transducerHandlerSource = `import json
import os
import urllib.request

import boto3

MANIFEST_PATH = os.path.join(os.path.dirname(__file__), "manifest.json")

_events = boto3.client("events")
_lambda = boto3.client("lambda")


def _load_manifest():
    with open(MANIFEST_PATH) as f:
        return json.load(f)


def handler(event, context):
    manifest = _load_manifest()
    source_arn = event.get("source_arn") or context.invoked_function_arn
    targets = manifest.get("targets", {}).get(source_arn, {})
    dispatched = []
    for kind, name in targets.items():
        if not name:
            continue
        dispatch(kind, name, event)
        dispatched.append(kind)
    return {"dispatched": dispatched}


def dispatch(kind, name, event):
    payload = event.get("detail", event)
    if kind == "event":
        _events.put_events(Entries=[{
            "Source": os.environ.get("NAMESPACE", "tc"),
            "DetailType": name,
            "Detail": json.dumps(payload),
        }])
    elif kind == "function":
        _lambda.invoke(
            FunctionName=name,
            InvocationType="Event",
            Payload=json.dumps(payload).encode("utf-8"),
        )
    elif kind == "mutation":
        _post_graphql(name, payload)
    elif kind == "channel":
        _post_channel(name, payload)
    else:
        raise ValueError("unknown transducer target kind: %s" % kind)


def _post_graphql(field_name, payload):
    endpoint = os.environ.get("APPSYNC_ENDPOINT")
    if not endpoint:
        return
    body = json.dumps({
        "query": "mutation Dispatch($input: AWSJSON!) { %s(input: $input) }" % field_name,
        "variables": {"input": json.dumps(payload)},
    }).encode("utf-8")
    req = urllib.request.Request(endpoint, data=body, headers={
        "Content-Type": "application/json",
        "x-api-key": os.environ.get("APPSYNC_API_KEY", ""),
    })
    urllib.request.urlopen(req, timeout=5)


def _post_channel(endpoint, payload):
    body = json.dumps(payload).encode("utf-8")
    req = urllib.request.Request(endpoint, data=body, headers={"Content-Type": "application/json"})
    urllib.request.urlopen(req, timeout=5)
`

// finalizeTransducer fills in the synthetic Function for a topology's
// transducer, once every function's targets have been scanned.
func (c *Composer) finalizeTransducer(topo *Topology, namespace, topologyDir string) {
	fqn := topology.FQN(namespace, "transducer", "")
	fn := &Function{
		Name:       "transducer",
		ActualName: fqn,
		FQN:        fqn,
		Namespace:  namespace,
		Dir:         filepath.Join(topologyDir, ".tc-transducer"),
		Description: "fans upstream function output out to configured targets",
		Runtime: &topology.RuntimeSpec{
			Lang:        topology.LangPython311,
			Provider:    topology.ProviderLambda,
			PackageType: topology.PackageZip,
			Handler:     "transducer.handler",
			MemorySize:  128,
			Timeout:     60,
		},
		Build: &topology.BuildSpec{Kind: "Inline"},
	}
	if c.Auth != nil {
		fn.ARN = c.Auth.FunctionARN(fqn)
	}
	role := c.buildRole(&topology.RoleSpec{Kind: topology.RoleBase, Name: "tc-base-lambda-role"}, namespace, fn.Name)
	fn.Role = role
	topo.Roles[RoleFunction(fn.Name)] = role
	topo.Transducer.Function = fn
}

// TransducerHandlerSource exposes the embedded handler body for the
// builder to write alongside manifest.json.
func TransducerHandlerSource() string { return transducerHandlerSource }
