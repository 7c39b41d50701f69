// Package prebuilt provides ready-to-use graphs.
//
// CreateChatbot builds the single node graph START -> chatbot -> END over
// graph.MessagesState. With tools the node runs a tool loop: it offers the
// tools to the model, executes the calls it asks for, reports them as tool
// events and asks again until the model answers in text or the round limit
// is reached.
//
//	app, err := prebuilt.CreateChatbot(llm,
//		prebuilt.WithSystemPrompt("You are a helpful wizard."),
//		prebuilt.WithTools(tool.Calculator{}, tool.NewDice(nil)),
//	)
//	if err != nil {
//		return err
//	}
//	state, err := app.Invoke(ctx, graph.NewMessagesState("roll 2d6"))
package prebuilt
