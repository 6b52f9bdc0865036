// Package engine assembles the memory store, persona catalog, extraction
// pipeline, topic pool and generation gateway into the command surface a
// chat dispatcher consumes. Every method is safe to call from an event
// loop: none panics, and the only errors returned are ones the caller is
// expected to show the user, such as an unknown persona name.
//
// Usage:
//
//	cfg, _ := config.Load("galobalist.toml")
//	eng, err := engine.Build(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Close()
//
//	reply, _ := eng.Talk(ctx, userID, "what do you know about me?")
package engine
