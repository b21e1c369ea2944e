package main

import (
	"github.com/cryptorun/engine/adapter"
	"github.com/cryptorun/engine/store"
)

func engineStateOf(engineID string, acct adapter.AccountState) store.EngineState {
	return store.EngineState{
		EngineID: engineID,
		Equity:   acct.Equity,
	}
}
