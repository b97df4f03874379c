// Package engine runs one conversational invocation end to end.
//
// For every line of input the engine dispatches a mode, issues and checks a
// fresh token, builds the request body from configuration and recent
// history, sends it, normalizes the reply (streaming it or polling for it
// when the mode calls for that) and records the exchange in the history log.
//
//	eng, err := engine.New(engine.Options{Config: cfg, Credential: cred})
//	defer eng.Close()
//	reply, err := eng.Invoke(ctx, "stream: tell me a joke")
package engine
