package app

import (
	"fmt"
	"strconv"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は求人フィード取り込みワーカーとして起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandWorker, CommandServe, CommandMigrate, CommandHealthcheck:
		return Command(args[0])
	default:
		return CommandServe
	}
}

// MigrateAction はmigrateサブコマンドの操作種別。
type MigrateAction string

const (
	MigrateUp      MigrateAction = "up"
	MigrateDown    MigrateAction = "down"
	MigrateVersion MigrateAction = "version"
)

// MigrateOptions はmigrateサブコマンドの引数を表す。
type MigrateOptions struct {
	Action MigrateAction
	Steps  int // downで戻すステップ数
}

// ParseMigrateArgs は "migrate" に続く引数を解析する。
// 引数なしは up、"down" のステップ数省略時は1とする。
func ParseMigrateArgs(args []string) (MigrateOptions, error) {
	opts := MigrateOptions{Action: MigrateUp}
	if len(args) == 0 {
		return opts, nil
	}

	switch MigrateAction(args[0]) {
	case MigrateUp, MigrateVersion:
		opts.Action = MigrateAction(args[0])
	case MigrateDown:
		opts.Action = MigrateDown
		opts.Steps = 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return MigrateOptions{}, fmt.Errorf("invalid migrate down steps: %q", args[1])
			}
			opts.Steps = n
		}
	default:
		return MigrateOptions{}, fmt.Errorf("unknown migrate action: %q", args[0])
	}
	return opts, nil
}
