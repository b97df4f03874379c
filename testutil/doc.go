// Package testutil provides a fake bigmodel v4 API for tests.
//
// The fake answers every endpoint glmkit calls: sync, streamed and vision
// chat completions, async submit and result polling, and image generation.
// It records each request so tests can assert on paths, headers and bodies.
//
//	api := testutil.NewServer(t)
//	cfg.API.BaseURL = api.BaseURL()
//	...
//	reqs := api.Requests()
//
// Behavior can be changed between calls with Set, and Reset returns the fake
// to its defaults and forgets recorded requests.
package testutil
