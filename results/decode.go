package results

import (
	"encoding/json"
	"fmt"
	"io"
)

// jsonTask is the wire form of a task in a result tree dump.
type jsonTask struct {
	Type   string      `json:"type,omitempty"`
	Name   string      `json:"name"`
	Mode   Mode        `json:"mode,omitempty"`
	Tasks  []jsonTask  `json:"tasks,omitempty"`
	Result *jsonResult `json:"result,omitempty"`
}

type jsonResult struct {
	State  State       `json:"state"`
	Errors []TestError `json:"errors,omitempty"`
}

type jsonFile struct {
	Name  string     `json:"name"`
	Tasks []jsonTask `json:"tasks"`
}

// DecodeFiles reads a JSON array of files from r.
//
// Each task carries a "type" tag ("suite" or "test"). A task without a tag is
// a suite if it has a "tasks" array and a test otherwise.
func DecodeFiles(r io.Reader) ([]*File, error) {
	var raw []jsonFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode result tree: %w", err)
	}

	files := make([]*File, 0, len(raw))
	for _, f := range raw {
		tasks, err := convertTasks(f.Tasks)
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", f.Name, err)
		}
		files = append(files, &File{Name: f.Name, Tasks: tasks})
	}
	return files, nil
}

func convertTasks(raw []jsonTask) ([]Task, error) {
	tasks := make([]Task, 0, len(raw))
	for _, jt := range raw {
		typ := jt.Type
		if typ == "" {
			typ = "test"
			if jt.Tasks != nil {
				typ = "suite"
			}
		}

		switch typ {
		case "suite":
			children, err := convertTasks(jt.Tasks)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, &Suite{Name: jt.Name, Tasks: children})
		case "test", "custom":
			test := &Test{Name: jt.Name, Mode: jt.Mode}
			if jt.Result != nil {
				test.Result = &Result{State: jt.Result.State, Errors: jt.Result.Errors}
			}
			tasks = append(tasks, test)
		default:
			return nil, fmt.Errorf("task %q: unknown type %q", jt.Name, jt.Type)
		}
	}
	return tasks, nil
}
