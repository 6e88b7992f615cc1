package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/stylae/divin-scraper/cmd/divin-scraper/commands"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "divin-scraper",
		Usage: "Divinストアフロントのカタログを取得し、Embedding付きレコードとして永続化する",
		Commands: []*cli.Command{
			{
				Name:  "scrape",
				Usage: "カタログ取得コマンド",
				Commands: []*cli.Command{
					{
						Name:  "run",
						Usage: "fetch → embed → store のフルパイプラインを実行",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.IntFlag{
								Name:  "limit",
								Usage: "処理する商品数の上限（テスト用、0で無制限）",
							},
							&cli.BoolFlag{
								Name:  "dry-run",
								Usage: "取得とログ出力のみ行い、EmbeddingとDB書き込みを行わない",
							},
						},
						Action: commands.ScrapeRunAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
