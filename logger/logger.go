// Package logger provides adapters for popular logger libraries to work with ordkv's Logger interface.
//
// The adapters allow you to use your existing logger with ordkv without writing boilerplate.
// Note that the standard library's slog.Logger already implements ordkv.Logger directly.
//
// Example with zap:
//
//	import (
//	    "ordkv"
//	    "ordkv/logger"
//	    "go.uber.org/zap"
//	)
//
//	func main() {
//	    zapLogger, _ := zap.NewProduction()
//
//	    db, err := ordkv.Open("data.db", ordkv.WithLogger(logger.NewZap(zapLogger)))
//	    if err != nil {
//	        panic(err)
//	    }
//	    defer db.Close()
//	}
package logger
