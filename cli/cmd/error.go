package cmd

import "github.com/ardnew/yaql/lang"

var (
	ErrLoadData    = lang.NewError("load input data")
	ErrInvalidVar  = lang.NewError("invalid variable")
	ErrEncode      = lang.NewError("encode result")
	ErrWriteConfig = lang.NewError("write configuration file")
	ErrFileExists  = lang.NewError("file exists (use --force to overwrite)")
)
