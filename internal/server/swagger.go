package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title NyxGuard API
// @version 0.1
// @description Page risk scoring for browsing sessions: submit page features and tracker hits, read results, manage settings and domain lists.
// @contact.name NyxGuard Maintainers
// @contact.url https://github.com/raysh454/nyxguard
// @BasePath /
