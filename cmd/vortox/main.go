// Command vortox はVortox AIのWebサーバーを起動する。
//
// サブコマンド:
//
//	serve        Webサーバーを起動する（デフォルト）
//	worker       期限切れセッションの削除ジョブのみを起動する
//	migrate      データベースマイグレーションを適用する
//	healthcheck  /health を呼び出して終了コードで結果を返す
package main

import (
	"log/slog"
	"os"

	"github.com/hitoshi/vortox/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
