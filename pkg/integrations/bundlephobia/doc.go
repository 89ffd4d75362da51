// Package bundlephobia reads published bundle sizes for npm packages from
// https://bundlephobia.com.
//
//	client := bundlephobia.NewClient(c, 24*time.Hour)
//	res := client.FetchSize(ctx, "express")
//	fmt.Println(res.Value.SizeKB, res.Value.GzipKB)
package bundlephobia
