// Package prebuilt provides ready-made graph constructions on top of the
// core engine.
//
// ChatAgent is a multi-turn conversational agent whose history is carried
// by per-thread checkpoints:
//
//	agent, err := prebuilt.NewChatAgent(model,
//		prebuilt.WithSystemPrompt("You are a helpful assistant."),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	reply, err := agent.Send(ctx, "Hello!")
//
// NewToolNode adapts a langchaingo tool into a node function so tools can
// participate in arbitrary graphs.
package prebuilt
