// Package catan embeds the retrieval-and-generation pipeline in a Go program
// without running the HTTP service.
//
//	client, _ := catan.New(ctx,
//	    catan.WithSQLite("data/vectors.db"),
//	    catan.WithEmbedder(myEmbedder),
//	    catan.WithChatModel(myChat),
//	)
//	defer client.Close()
//
//	_, _ = client.Index(ctx, "documents", text, map[string]any{"source": "manual.pdf"})
//	hits, _ := client.Search(ctx, "documents", "how do I reset it?", 5)
//	answer, _ := client.Answer(ctx, "documents", "how do I reset it?", 5)
package catan
