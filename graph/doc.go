// Package graph is the execution engine behind PixelGraph.
//
// A StateGraph is a set of named nodes joined by edges, with START and END
// sentinels. Compiling it yields a StateRunnable that walks the graph in
// supersteps: every node scheduled for a step runs concurrently, the outputs
// are merged through the StateSchema and the outgoing edges pick the next
// step. Conditional edges choose their successor from the merged state.
//
// Execution is observable through NodeListener. Listeners registered on the
// graph see every run; listeners passed in Config see a single run, which is
// how the game server follows one simulation per WebSocket connection.
// Nodes that call tools report them with NotifyToolStart and NotifyToolEnd so
// the same listeners receive tool events attributed to the calling node.
//
//	g := graph.NewStateGraph[graph.MessagesState]()
//	g.SetSchema(graph.MessagesSchema())
//	g.AddNode("chatbot", "Answers the user", chatbot)
//	g.AddEdge(graph.START, "chatbot")
//	g.AddEdge("chatbot", graph.END)
//
//	app, err := g.Compile()
//	if err != nil {
//		return err
//	}
//	out, err := app.InvokeWithConfig(ctx, graph.NewMessagesState("hi"), &graph.Config{
//		Listeners: []graph.NodeListener{listener},
//	})
package graph
