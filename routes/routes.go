package routes

// Routes package cung cấp routing cho Address Cleaner Service
//
// Cấu trúc:
// - api.go: API routes (/v1/*), health và metrics
// - web.go: Web routes (/, /docs)
// - middleware.go: request log qua zap, request ID
//
// Sử dụng:
// routes.SetupAllRoutes(router, routes.Controllers{...}, registry, logger)
