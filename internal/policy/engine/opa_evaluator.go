package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const policyQuery = "data.linkerai.onboarding"

// DefaultRegoPolicy is the built-in onboarding policy. A replacement module must keep the
// linkerai.onboarding package and the valid_onboarding_role, allow_write and deny_reason rules.
const DefaultRegoPolicy = `package linkerai.onboarding

onboarding_roles := {"client", "freelancer"}

default valid_onboarding_role := false

valid_onboarding_role if {
	input.requested_role in onboarding_roles
}

default allow_write := false

allow_write if {
	valid_onboarding_role
	input.profile_role == input.requested_role
}

default deny_reason := ""

deny_reason := "invalid_role" if {
	not valid_onboarding_role
}

deny_reason := "no_role_bound" if {
	valid_onboarding_role
	not input.profile_role
}

deny_reason := "role_differs" if {
	valid_onboarding_role
	input.profile_role
	input.profile_role != input.requested_role
}
`

// OPAEvaluator evaluates the onboarding policy with an in-process OPA Rego query prepared once.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles module (DefaultRegoPolicy when empty) and prepares the policy query.
func NewOPAEvaluator(ctx context.Context, module string) (*OPAEvaluator, error) {
	if module == "" {
		module = DefaultRegoPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"onboarding.rego": module})
	if err != nil {
		return nil, fmt.Errorf("compile onboarding policy: %w", err)
	}
	pq, err := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare onboarding policy: %w", err)
	}
	return &OPAEvaluator{query: pq}, nil
}

// LoadPolicyFile reads a Rego module from path. An empty path returns DefaultRegoPolicy.
func LoadPolicyFile(path string) (string, error) {
	if path == "" {
		return DefaultRegoPolicy, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read policy file: %w", err)
	}
	return string(b), nil
}

// Evaluate implements Evaluator.
func (e *OPAEvaluator) Evaluate(ctx context.Context, in Input) (Decision, error) {
	input := map[string]interface{}{"requested_role": in.RequestedRole}
	if in.ProfileRole != "" {
		input["profile_role"] = in.ProfileRole
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("eval onboarding policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decision{}, errors.New("onboarding policy returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("onboarding policy returned %T", rs[0].Expressions[0].Value)
	}
	var d Decision
	d.ValidRole, _ = doc["valid_onboarding_role"].(bool)
	d.AllowWrite, _ = doc["allow_write"].(bool)
	d.Reason, _ = doc["deny_reason"].(string)
	return d, nil
}

// HealthCheck evaluates a known-good input and checks the policy allows it.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	d, err := e.Evaluate(ctx, Input{RequestedRole: "client", ProfileRole: "client"})
	if err != nil {
		return err
	}
	if !d.ValidRole || !d.AllowWrite {
		return fmt.Errorf("onboarding policy rejected a bound client write: %+v", d)
	}
	return nil
}
