// Package main provides localization for the framecast CLI.
package main

import (
	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"
)

// helpTexts maps kong help variables to their English text, which doubles as the lexicon key.
var helpTexts = map[string]string{
	"help_stream":  "Stream a media file to a UDP receiver",
	"help_version": "Show version information",

	"help_input":  "Video file to stream",
	"help_config": "YAML configuration file (flags take precedence)",

	"help_host": "Destination host (default: 127.0.0.1)",
	"help_port": "Destination UDP port (default: STREAM_PORT env, else 5000)",
	"help_url":  "Complete ffmpeg output URL, replaces host and port",

	"help_mode":            "Delivery mode: direct, fifo or chunked (default: direct)",
	"help_fps":             "Frame rate override (default: from the media, else 30)",
	"help_audio":           "16-bit PCM WAV file muxed into the stream",
	"help_start_delay":     "Wait before sending so the player can start listening (default: 3s)",
	"help_chunk_duration":  "Length of each chunk in chunked mode (default: 5s)",
	"help_force_keyframes": "Number of leading frames forced to keyframes in each session (default: 3)",

	"help_video_frames_per_item": "Frames carried per video relay item (default: 4)",
	"help_audio_block_frames":    "Sample frames per audio block (default: 1024)",
	"help_video_relay_capacity":  "Video relay capacity in items (default: 60)",
	"help_audio_relay_capacity":  "Audio relay capacity in blocks (default: 200)",

	"help_ffmpeg":       "Path to the ffmpeg executable (falls back to FFMPEG_PATH env, then PATH)",
	"help_exit_timeout": "Kill ffmpeg if it has not exited this long after its input closed (default: wait)",

	"help_overlay":          "Caption drawn on every frame; supports {frame} and {time}",
	"help_overlay_position": "Caption corner: top-left, top-right, bottom-left, bottom-right",

	"help_dry_run":      "Pace frames without starting ffmpeg",
	"help_dump":         "Write raw session inputs and ffmpeg manifests to this directory instead of streaming",
	"help_metrics_addr": "Serve Prometheus metrics on this address (e.g., :9100)",
	"help_summary":      "Output run summary to file (Markdown format)",

	"help_log_level":  "Log level (debug, info, warn, error)",
	"help_log_format": "Log format: text or json (default: text)",
	"help_quiet":      "Suppress all log output",
}

// helpVars returns the translated help texts for kong's ${var} interpolation.
func helpVars() kong.Vars {
	vars := kong.Vars{}
	for k, v := range helpTexts {
		vars[k] = l10n.T(v)
	}
	return vars
}

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Stream a video file as paced MPEG-TS over UDP through ffmpeg": "ffmpegを介して動画ファイルをペース制御されたMPEG-TSとしてUDP配信",

		// Commands
		"Stream a media file to a UDP receiver": "メディアファイルをUDP受信側へ配信",
		"Show version information":              "バージョン情報を表示",
		"framecast version %s":                  "framecast バージョン %s",

		// Arguments
		"Video file to stream":                            "配信する動画ファイル",
		"YAML configuration file (flags take precedence)": "YAML設定ファイル（フラグが優先）",

		// Destination flags
		"Destination host (default: 127.0.0.1)":                      "送信先ホスト（デフォルト: 127.0.0.1）",
		"Destination UDP port (default: STREAM_PORT env, else 5000)": "送信先UDPポート（デフォルト: 環境変数STREAM_PORT、なければ5000）",
		"Complete ffmpeg output URL, replaces host and port":         "ffmpegの出力URL（ホストとポートを置き換え）",

		// Stream flags
		"Delivery mode: direct, fifo or chunked (default: direct)":                   "配信モード: direct, fifo, chunked（デフォルト: direct）",
		"Frame rate override (default: from the media, else 30)":                     "フレームレートの上書き（デフォルト: メディアの値、なければ30）",
		"16-bit PCM WAV file muxed into the stream":                                  "ストリームに多重化する16ビットPCMのWAVファイル",
		"Wait before sending so the player can start listening (default: 3s)":        "プレーヤーが受信を開始できるよう送信前に待機（デフォルト: 3s）",
		"Length of each chunk in chunked mode (default: 5s)":                         "chunkedモードでのチャンク長（デフォルト: 5s）",
		"Number of leading frames forced to keyframes in each session (default: 3)": "各セッションの先頭でキーフレームにするフレーム数（デフォルト: 3）",

		// Relay flags
		"Frames carried per video relay item (default: 4)": "映像リレー1項目あたりのフレーム数（デフォルト: 4）",
		"Sample frames per audio block (default: 1024)":    "音声ブロックあたりのサンプルフレーム数（デフォルト: 1024）",
		"Video relay capacity in items (default: 60)":      "映像リレーの容量（項目数、デフォルト: 60）",
		"Audio relay capacity in blocks (default: 200)":    "音声リレーの容量（ブロック数、デフォルト: 200）",

		// ffmpeg flags
		"Path to the ffmpeg executable (falls back to FFMPEG_PATH env, then PATH)":         "ffmpeg実行ファイルのパス（未指定時はFFMPEG_PATH環境変数、次にPATH）",
		"Kill ffmpeg if it has not exited this long after its input closed (default: wait)": "入力を閉じてからこの時間内に終了しないffmpegを強制終了（デフォルト: 待機し続ける）",

		// Overlay flags
		"Caption drawn on every frame; supports {frame} and {time}":       "全フレームに描画するキャプション（{frame} と {time} を使用可能）",
		"Caption corner: top-left, top-right, bottom-left, bottom-right": "キャプションの位置: top-left, top-right, bottom-left, bottom-right",

		// Output flags
		"Pace frames without starting ffmpeg": "ffmpegを起動せずにフレームをペース送信",
		"Write raw session inputs and ffmpeg manifests to this directory instead of streaming": "配信せずにセッションの生入力とffmpegマニフェストをこのディレクトリへ書き出し",
		"Serve Prometheus metrics on this address (e.g., :9100)":                              "このアドレスでPrometheusメトリクスを公開（例: :9100）",
		"Output run summary to file (Markdown format)":                                        "実行サマリーをファイルに出力（Markdown形式）",

		// Logging flags
		"Log level (debug, info, warn, error)":     "ログレベル（debug, info, warn, error）",
		"Log format: text or json (default: text)": "ログ形式: text または json（デフォルト: text）",
		"Suppress all log output":                  "全てのログ出力を抑制",

		// Summary content
		"Stream Summary": "配信サマリー",
		"Result":         "結果",
		"Completed":      "完了",
		"Interrupted":    "中断",
		"Failed":         "失敗",
		"Partial":        "一部のみ",
		"OK":             "OK",
		"Stream":         "ストリーム",
		"Delivery":       "送信",
		"Chunks":         "チャンク",
		"Item":           "項目",
		"Value":          "値",
		"Run ID":         "実行ID",
		"Mode":           "モード",
		"Destination":    "送信先",
		"Video":          "映像",
		"Audio":          "音声",
		"None":           "なし",
		"Frames Sent":    "送信フレーム数",
		"Audio Blocks":   "音声ブロック数",
		"Video Data":     "映像データ量",
		"Audio Data":     "音声データ量",
		"Sessions":       "セッション数",
		"Late Frames":    "遅延フレーム数",
		"Relay Stalls":   "リレー待機回数",
		"Elapsed":        "経過時間",
		"Frames":         "フレーム数",
		"Start":          "開始",
		"Duration":       "長さ",
		"Generated at":   "生成日時",
	})
}
