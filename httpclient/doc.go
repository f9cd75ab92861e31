// Package httpclient fetches remote resources as packages.
//
// A Client applies the configured base URL, default headers, rate limit and
// retry policy to every request. Fetch and Download expose it as pipeline
// work so crawls can be composed with the rest of the engine:
//
//	client, _ := httpclient.New(httpclient.Config{RateLimit: 5}, log)
//	pages := pipeline.Concurrent(pipeline.FromSlice(urls), client.Fetch(), 4)
package httpclient
