package conversation

// Context carries the run-scoped state shared by both agents for the
// duration of a single dialogue.
type Context struct {
	// Goal is the user's stated objective for the conversation. Agents
	// derive their instructions from it and the takeaways prompt quotes it.
	Goal string
}
