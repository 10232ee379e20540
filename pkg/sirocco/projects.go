package sirocco

import (
	"errors"
	"fmt"
)

const controlSuccess = "Success"

// projectIndex maps runs[i].id to runs[i].name when control is "Success";
// any other control value passes the payload through.
func projectIndex(payload any) (any, error) {
	body, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("projects payload is %T, not an object", payload)
	}
	control, ok := body["control"]
	if !ok {
		return nil, errors.New("projects payload has no 'control' key")
	}
	if control != controlSuccess {
		return payload, nil
	}

	rawRuns, ok := body["runs"]
	if !ok {
		return nil, errors.New("projects payload has no 'runs' key")
	}
	runs, ok := rawRuns.([]any)
	if !ok {
		return nil, fmt.Errorf("projects 'runs' is %T, not a list", rawRuns)
	}

	out := make(map[string]any, len(runs))
	for i, raw := range runs {
		run, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("runs[%d] is %T, not an object", i, raw)
		}
		id, ok := run["id"]
		if !ok {
			return nil, fmt.Errorf("runs[%d] has no 'id' key", i)
		}
		name, ok := run["name"]
		if !ok {
			return nil, fmt.Errorf("runs[%d] has no 'name' key", i)
		}
		out[fmt.Sprint(id)] = name
	}
	return out, nil
}
