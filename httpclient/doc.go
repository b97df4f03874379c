// Package httpclient is the HTTP transport used to reach the bigmodel API.
//
// It sends JSON bodies with the API's default headers, applies bearer
// authentication per request, optionally retries and rate limits calls, and
// exposes streaming responses through the sse subpackage.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://open.bigmodel.cn/api/paas/v4/",
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "chat/completions",
//	    Body:   body,
//	    Auth:   httpclient.BearerAuth(token),
//	})
//
// # Streaming
//
//	stream, err := client.DoStream(ctx, httpclient.Request{
//	    Method:  http.MethodPost,
//	    Path:    "chat/completions",
//	    Headers: httpclient.StreamHeaders(),
//	    Body:    body,
//	})
//	defer stream.Close()
//	for {
//	    ev, err := stream.SSE.Next()
//	    ...
//	}
package httpclient
