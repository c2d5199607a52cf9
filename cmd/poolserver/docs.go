package main

//go:generate swag init -g cmd/poolserver/main.go -o docs

// @title           Pool Finder API
// @version         0.1.0
// @description     Korean public swimming pool directory and public data sync controls.
// @host            localhost:8080
// @BasePath        /
// @schemes         http

// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
