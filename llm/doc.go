// Package llm speaks the bigmodel v4 wire format.
//
// It covers the three halves of every invocation that do not depend on the
// caller's state:
//
//   - building request bodies from model configuration and history
//     ([BuildChatRequest], [BuildVisionRequest], [BuildImageRequest]);
//   - sending them over [httpclient] ([Client]);
//   - turning the replies back into text ([ParseCompletion], [ParseImage],
//     [StreamDecoder], [Poller]).
//
// Every text that reaches the caller passes through [Cleanup], which decodes
// \uXXXX escapes and strips the quote and backslash sequences the remote
// model tends to leave in its output.
package llm
