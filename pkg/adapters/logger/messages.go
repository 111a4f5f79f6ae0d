package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Startup
		"Input: %dx%d @ %.2f fps, %d frames":                      "入力: %dx%d @ %.2f fps, %d フレーム",
		"Audio: %d Hz, %d ch, %.1f s":                             "音声: %d Hz, %d ch, %.1f 秒",
		"Metrics available at http://%s/metrics":                  "メトリクスを http://%s/metrics で公開中",
		"Dry run: no ffmpeg process will be started":              "ドライラン: ffmpegプロセスは起動しません",
		"Dumping raw streams to %s":                               "生ストリームを %s へ書き出します",
		"Open %s in your player, e.g. ffplay -fflags nobuffer %s": "プレーヤーで %s を開いてください（例: ffplay -fflags nobuffer %s）",

		// Orchestration
		"Streaming %dx%d @ %.2f fps to %s":                        "%dx%d @ %.2f fps を %s へ配信します",
		"Streaming %dx%d @ %.2f fps with %d Hz %d ch audio to %s": "%dx%d @ %.2f fps（音声 %d Hz %d ch）を %s へ配信します",
		"Sending starts in %s":                                    "%s 後に送信を開始します",
		"Sending %d frames in %d chunks":                          "%d フレームを %d チャンクで送信します",
		"Sent %d frames (%.1f s)":                                 "%d フレームを送信しました（%.1f 秒）",
		"Interrupted, stopping stream":                            "中断されました。配信を停止します",
		"Interrupted, shutting down...":                           "中断されました。シャットダウン中...",

		// Chunk scheduler
		"Chunk %d: %d frames, start %.3fs, duration %.3fs": "チャンク %d: %d フレーム, 開始 %.3f秒, 長さ %.3f秒",

		// Summary
		"Summary saved to %s": "サマリーを %s に保存しました",

		// Warnings
		"%s: receiver stopped after %d units":       "%s: %d 単位の送信後に受信側が停止しました",
		"%s: ffmpeg did not exit, terminating":      "%s: ffmpegが終了しないため停止します",
		"%s: ffmpeg ignored SIGTERM, killing":       "%s: ffmpegがSIGTERMに応答しないため強制終了します",
		"Metrics server stopped: %v":                "メトリクスサーバーが停止しました: %v",
		"Failed to write summary: %s":               "サマリーの書き込みに失敗しました: %s",
		"Ignoring STREAM_PORT=%q: not a valid port": "STREAM_PORT=%q は有効なポートではないため無視します",

		// Errors
		"Stream stopped early: %v": "配信が途中で停止しました: %v",
	})
}
