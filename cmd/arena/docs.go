package main

//go:generate swag init -g cmd/arena/main.go -o docs

// @title           Coliseum Arena API
// @version         0.1.0
// @description     Agent fights, pari-mutuel betting markets, and live odds.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
