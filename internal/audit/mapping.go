package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseRoute returns action and resource for an HTTP method and chi route pattern
// (e.g. PUT /v1/onboarding/{role} -> save onboarding). Resource is the first path segment after
// the version; a {role} segment is replaced by role when given.
func ParseRoute(method, pattern, role string) ActionResource {
	segs := make([]string, 0, 4)
	for _, s := range strings.Split(strings.Trim(pattern, "/"), "/") {
		if s == "" || s == "*" {
			continue
		}
		segs = append(segs, s)
	}
	if len(segs) > 0 && isVersion(segs[0]) {
		segs = segs[1:]
	}
	if len(segs) == 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	resource := segs[0]
	if len(segs) > 1 && segs[1] == "{role}" && role != "" {
		resource += "." + role
	}
	last := segs[len(segs)-1]
	if strings.HasPrefix(last, "{") || len(segs) == 1 {
		return ActionResource{Action: methodToAction(method), Resource: resource}
	}
	return ActionResource{Action: strings.ToLower(last), Resource: resource}
}

func isVersion(s string) bool {
	return len(s) > 1 && s[0] == 'v' && strings.Trim(s[1:], "0123456789") == ""
}

func methodToAction(method string) string {
	switch strings.ToUpper(method) {
	case "GET", "HEAD":
		return "get"
	case "POST":
		return "create"
	case "PUT":
		return "save"
	case "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
