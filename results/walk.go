package results

// PathSeparator joins ancestor names into a test path.
const PathSeparator = " > "

// VisitFunc is called for every task reached by Walk. path is the task's
// full path including its own name, rooted at the file name.
type VisitFunc func(task Task, path string)

// Walk visits every task of every file in pre-order, depth-first, following
// slice order. Suites are visited before their children. Nil files and nil
// tasks are skipped.
func Walk(files []*File, fn VisitFunc) {
	for _, file := range files {
		if file == nil {
			continue
		}
		walkTasks(file.Tasks, file.Name, fn)
	}
}

func walkTasks(tasks []Task, parentPath string, fn VisitFunc) {
	for _, task := range tasks {
		switch t := task.(type) {
		case *Suite:
			if t == nil {
				continue
			}
			path := parentPath + PathSeparator + t.Name
			fn(t, path)
			walkTasks(t.Tasks, path, fn)
		case *Test:
			if t == nil {
				continue
			}
			fn(t, parentPath+PathSeparator+t.Name)
		}
	}
}

// WalkTests is Walk restricted to Test leaves.
func WalkTests(files []*File, fn func(test *Test, path string)) {
	Walk(files, func(task Task, path string) {
		if test, ok := task.(*Test); ok {
			fn(test, path)
		}
	})
}
