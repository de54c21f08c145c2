// Package lostfound embeds the campus lost and found catalog in a Go program
// without running the HTTP service. It talks to the same Redis database and
// vision provider as the server, so items reported through either are visible
// to both.
//
//	client, _ := lostfound.New(ctx,
//	    lostfound.WithRedis("localhost:6379", ""),
//	    lostfound.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "gpt-4o"),
//	    lostfound.WithPublicBaseURL("https://lost.example.edu"),
//	)
//	defer client.Close()
//
//	u, _ := client.Users().Register(ctx, "ana@example.edu", "ana")
//	photo, _ := os.Open("umbrella.jpg")
//	it, _ := client.Items().Report(ctx, u.ID, lostfound.ItemDraft{
//	    Type:     lostfound.TypeFound,
//	    Title:    "Black umbrella",
//	    Category: "accessories",
//	    Location: "Library, 2nd floor",
//	    Date:     "2026-10-01",
//	}, photo)
//
//	query, _ := os.Open("my-umbrella.jpg")
//	matches, _ := client.SearchImage(ctx, query)
package lostfound
