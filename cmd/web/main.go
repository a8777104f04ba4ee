// @title           Short Sale Tracker API
// @version         1.0
// @description     API координации short sale сделок (документация Swagger).
// @contact.name    Short Sale Tracker
// @contact.email   support@shortsaletracker.io
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:4000
// @BasePath        /

package main

import "shortsale_backend/internal/app"

func main() {
	app.Run()
}
