package cliarg

func compileControlFifo(g Group) ([]string, error) {
	return g.RequirePaths()
}
