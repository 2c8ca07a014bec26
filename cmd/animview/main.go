package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/animgraph/animset"
)

func main() {
	set := flag.String("set", "kid", "body set to show")
	clip := flag.String("clip", "locomotion", "state to start in")
	watch := flag.Bool("watch", false, "reload sets and scripts from -dir when they change")
	dir := flag.String("dir", animset.Dir, "directory whose files override the embedded sets")
	flag.Parse()

	animset.Dir = *dir

	v, err := newViewer(*set, *clip)
	if err != nil {
		log.Fatal(err)
	}
	if *watch {
		if err := v.watch(*dir); err != nil {
			log.Printf("animview: watch %s: %v", *dir, err)
		}
	}
	defer v.close()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("animview - " + *set)
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
