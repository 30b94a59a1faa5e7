package main

import (
	"encoding/json"
	"log"

	"finchdb/buffer"
	"finchdb/disk"
)

type demoRecord struct {
	Num int
	Val string
}

func main() {
	dm, err := disk.NewFileManager("finch.db")
	if err != nil {
		log.Fatal(err)
	}
	defer dm.Close()

	pool := buffer.NewBufferPoolManager(dm, 32, nil)

	for i := 0; i < 50; i++ {
		rec := demoRecord{Num: i, Val: "selam"}
		body, err := json.Marshal(rec)
		if err != nil {
			log.Fatal(err)
		}

		page, pageID, ok := pool.NewPage()
		if !ok {
			log.Fatal("buffer pool exhausted")
		}
		copy(page.Data(), body)
		pool.Unpin(pageID, true)

		log.Printf("wrote page %d: %s", pageID, body)
	}

	pool.FlushAll()
}
