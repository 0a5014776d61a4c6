package main

// General API documentation annotations for swaggo's swag generator.
//
// @title           modeld model repository manager API
// @version         1.0
// @description     HTTP API for repository polling, dependency-graph inspection, and explicit model load/unload control.
//
// @contact.name   modeld maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
