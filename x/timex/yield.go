package timex

import "runtime"

func yield() { runtime.Gosched() }
