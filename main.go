package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/0xNekr/firstmint/minter"
	"github.com/0xNekr/firstmint/store"
	"github.com/0xNekr/firstmint/token"
	"github.com/rs/zerolog"
)

func main() {
	ctx := context.Background()

	bp := flag.String("d", "~/.firstmint/data", "database directory path")
	cp := flag.String("c", "~/.firstmint/config.toml", "configuration file path")
	flag.Parse()

	if strings.HasPrefix(*cp, "~/") {
		usr, _ := user.Current()
		*cp = filepath.Join(usr.HomeDir, (*cp)[2:])
	}
	conf, err := minter.LoadConfig(*cp)
	if err != nil {
		panic(err)
	}

	if strings.HasPrefix(*bp, "~/") {
		usr, _ := user.Current()
		*bp = filepath.Join(usr.HomeDir, (*bp)[2:])
	}
	db, err := store.OpenBadger(ctx, *bp)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "firstmint").Logger()

	ledger := token.NewLedger(db)
	m, err := minter.NewMinter(db, ledger, conf.Owner, logger)
	if err != nil {
		panic(err)
	}
	if !m.Initialized() {
		err = m.Setup(ctx)
		if err != nil {
			panic(err)
		}
	}
	go m.Run(ctx)

	s := &server{
		minter: m,
		ledger: ledger,
		logger: logger.With().Str("component", "api").Logger(),
	}
	logger.Info().Str("listen", conf.Listen).Msg("serving")
	err = http.ListenAndServe(conf.Listen, s.router())
	if err != nil {
		panic(err)
	}
}
