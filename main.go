package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/egor/deskchatserver/database"
	"github.com/egor/deskchatserver/handlers"
	"github.com/egor/deskchatserver/metrics"
	"github.com/egor/deskchatserver/middleware"
	"github.com/egor/deskchatserver/push"
	"github.com/egor/deskchatserver/realtime"
)

func main() {
	// Загружаем переменные окружения из .env файла
	if err := godotenv.Load(); err != nil {
		log.Println("Файл .env не найден, используем переменные окружения")
	}

	// Инициализация базы данных
	if err := database.Init(); err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Ошибка инициализации схемы: %v", err)
	}

	// Инициализация роутера Gin
	r := gin.Default()

	// Добавляем middleware для логирования
	r.Use(middleware.Logger())

	// Настройка CORS для взаимодействия с виджетом и консолью
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Инициализация хаба live-обновлений
	hub := realtime.NewHub()
	go hub.Run()
	handlers.SetHub(hub)

	// Push-канал уведомлений о сообщениях посетителей
	notifier := push.NewNotifier()
	if notifier.Enabled() {
		log.Println("Push-уведомления включены")
	}
	handlers.SetNotifier(notifier)

	// API эндпоинты
	api := r.Group("/api")
	{
		// Виджет посетителя (публичный, сессия — capability)
		chat := api.Group("/chat")
		{
			chat.POST("/session", handlers.CreateSession)
			chat.GET("/sessions/:id", handlers.GetChatSession)
			chat.GET("/sessions/:id/messages", handlers.GetChatMessages)
			chat.POST("/sessions/:id/messages", handlers.SendChatMessage)
			chat.POST("/sessions/:id/read", handlers.MarkChatRead)
			chat.GET("/sessions/:id/queue", handlers.GetQueuePosition)
			chat.POST("/upload", handlers.UploadFile)
			chat.GET("/sse/:sessionId", handlers.ChatSSE)
		}

		// Консоль сотрудника
		staff := api.Group("/staff")
		{
			staff.POST("/login", middleware.LoginRateLimit(), handlers.Login)

			// Потоковые эндпоинты: токен в query-параметре
			staff.GET("/sse", handlers.StaffSSE)
			staff.GET("/ws", handlers.ServeStaffWS)

			// Защищенные маршруты
			authorized := staff.Group("/")
			authorized.Use(middleware.AuthMiddleware())
			{
				authorized.GET("/verify", handlers.Verify)
				authorized.GET("/sessions", handlers.GetSessions)
				authorized.GET("/sessions/:id", handlers.GetStaffSession)
				authorized.GET("/sessions/:id/messages", handlers.GetChatMessages)
				authorized.POST("/sessions/:id/messages", handlers.SendStaffMessage)
				authorized.POST("/sessions/:id/read", handlers.MarkStaffRead)
				authorized.PUT("/sessions/:id/topic", handlers.UpdateTopic)
				authorized.PUT("/sessions/:id/status", handlers.UpdateTaskStatus)
				authorized.POST("/sessions/:id/close", handlers.CloseSession)
				authorized.GET("/queue", handlers.GetQueue)
			}
		}

		// Список дел (демо-модуль, независим от чата)
		todos := api.Group("/todos")
		{
			todos.GET("", handlers.GetTodos)
			todos.POST("", handlers.CreateTodo)
			todos.GET("/:id", handlers.GetTodoByID)
			todos.PUT("/:id", handlers.UpdateTodo)
			todos.DELETE("/:id", handlers.DeleteTodo)
		}
	}

	// Загруженные файлы и метрики
	r.Static("/uploads", handlers.UploadDir())
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Запуск сервера
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Сервер запущен на порту :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
