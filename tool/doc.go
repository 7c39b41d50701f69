// Package tool provides small tools for the arcade chatbot. Every tool
// implements the langchaingo tools.Tool interface, so it can be passed to
// prebuilt.WithTools and shows up in the game as a TOOL_START / TOOL_END
// animation.
//
//	app, err := prebuilt.CreateChatbot(model, prebuilt.WithTools(
//		tool.Calculator{},
//		tool.Clock{},
//		tool.NewDice(nil),
//		tool.NewWebFetch(),
//	))
package tool
