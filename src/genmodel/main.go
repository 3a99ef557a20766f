package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/jinjor/desktop-mixer/src/mixer"
	"github.com/jinjor/desktop-mixer/src/radio"
	"golang.org/x/sync/errgroup"
)

var (
	capacity = flag.Int("capacity", mixer.MaxMixers, "mixer slots per model")
	channels = flag.Int("channels", 8, "output channels per model")
)

var orders = []string{"RETA", "AETR", "TAER", "ETRA"}

func main() {
	flag.Parse()
	dir := flag.Arg(0)
	if dir == "" {
		panic("dir is not passed")
	}
	log.SetFlags(log.Lshortfile)

	store := radio.NewModelStore(dir)
	ctx := context.Background()
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range orders {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			order, err := mixer.ParseChannelOrder(s)
			if err != nil {
				return err
			}
			m, err := mixer.NewTemplate(strings.ToLower(s), order, *capacity, *channels)
			if err != nil {
				return err
			}
			log.Printf("generated %s\n", m.Name)
			err = store.Save(m)
			log.Printf("saved %s\n", m.Name)
			return err
		})
	}
	err := g.Wait()
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("Successfully generated models.")
}
