package main

import "github.com/okian/kpiboard/internal/kpictl"

func main() {
	kpictl.Execute()
}
