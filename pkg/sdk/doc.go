// Package geodex embeds the geodex catalog search in a Go program: the same
// projection, indexing and search services the API server runs, without
// the HTTP layer.
//
// # Setup
//
//	client, _ := geodex.New(ctx,
//	    geodex.WithBleve(""),                  // in-memory indexes
//	    geodex.WithCatalog("data/catalog.db"),
//	)
//	defer client.Close()
//
// # Indexing
//
//	_, _ = client.ReindexAll(ctx)                   // every kind
//	doc, _ := client.Index(ctx, geodex.KindLayer, 42)
//
// # Search
//
//	page, _ := client.Search(ctx, "layers", geodex.SearchParams{
//	    Query:  "roads",
//	    Extent: "-10,40,5,50",
//	})
//	people, _ := client.SuggestPeople(ctx, "al")
package geodex
