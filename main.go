package main

import (
	"fmt"

	"storyboard-server/config"
	"storyboard-server/models"
	"storyboard-server/routers"
	"storyboard-server/service"
)

func main() {
	config.InitConfig()
	fmt.Println("Server starting on port", config.AppConfig.Server.Port)
	models.InitDB()
	fmt.Println("Database initialized")

	service.InitQueue()
	fmt.Println("Queue initialized")

	service.InitMinIO()

	store := models.NewGormStore(models.GormDB)
	backend := service.NewWorkerBackend(config.AppConfig.Worker.Addr, config.AppConfig.WorkerTimeout())
	coord := service.NewCoordinator(store, backend)
	if mirror := service.NewMinioMirror(); mirror != nil {
		coord.Mirror = mirror
	}

	processor := service.NewProcessor(models.GormDB, coord)
	processor.StartProcessor(5)

	r := routers.InitRouter(store, coord, models.GormDB)
	r.Run(config.AppConfig.Server.Port)
}
