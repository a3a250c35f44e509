package tools

// stringArg extracts a string argument from a tool call's argument map.
// Missing or non-string values yield the empty string; tools validate and
// report absent arguments themselves.
func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
