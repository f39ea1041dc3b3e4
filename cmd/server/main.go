package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tictac/searcher"
	"tictac/server"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:3000", "listen address")
	size := flag.Int("size", 3, "board side length")
	iterations := flag.Int("iterations", searcher.DefaultIterations, "search iterations per move")
	trees := flag.Int("trees", 1, "parallel search trees")
	exploration := flag.Float64("c", searcher.DefaultExploration, "UCT exploration constant")
	seed := flag.Uint64("seed", 42, "random seed")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	srv := server.New(server.Config{
		Size:        *size,
		Iterations:  *iterations,
		Trees:       *trees,
		Exploration: *exploration,
		Seed:        *seed,
	})

	log.Info().Str("addr", *addr).Int("size", *size).Int("iterations", *iterations).Msg("listening")
	if err := http.ListenAndServe(*addr, srv.Handler()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
