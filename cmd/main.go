package main

import (
	"github.com/orderflow/orders/internal/app"
	"github.com/orderflow/orders/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
