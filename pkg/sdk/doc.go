// Package sdk provides a Go client for the collecta HTTP API.
//
//	client := sdk.New("http://localhost:8080", sdk.WithAPIKey("secret"))
//
//	id, _ := client.CreateLink(ctx, sdk.NewLink{URL: "https://go.dev/blog"})
//	job, _ := client.IngestStatus(ctx, id)
//
//	page, _ := client.Search(ctx, sdk.SearchParams{
//	    Query: "generics",
//	    Mode:  sdk.ModeHybrid,
//	    Tags:  []string{"go"},
//	})
package sdk
