package widget

// Suggestions are the example questions offered next to the form.
var Suggestions = []string{
	"how can I automatically mock an import in jest",
	"I'm getting the error: 'NODE_ENV' is not recognized. Pls help.",
	"I need help reducing my webpack bundle size",
}
