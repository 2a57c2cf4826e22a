package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"anonchat/backend/internal/config"
	"anonchat/backend/internal/models"
	"anonchat/backend/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: rooms, room <id>, deactivate-room <id>")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "rooms":
		if err := listActiveRooms(db); err != nil {
			log.Fatalf("Error listing rooms: %v", err)
		}
	case "room":
		roomID := parseID(os.Args, "Usage: admin room <room_id>")
		room, err := storageSvc.GetRoomByID(roomID)
		if err != nil {
			log.Fatalf("Error loading room: %v", err)
		}
		printRoom(room)
	case "deactivate-room":
		roomID := parseID(os.Args, "Usage: admin deactivate-room <room_id>")
		if err := storageSvc.DeactivateRoom(roomID); err != nil {
			log.Fatalf("Error deactivating room: %v", err)
		}
		fmt.Printf("Room %d has been deactivated.\n", roomID)
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func parseID(args []string, usage string) int64 {
	if len(args) < 3 {
		fmt.Println(usage)
		os.Exit(1)
	}
	id, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		fmt.Println("Invalid id. Please provide an integer.")
		os.Exit(1)
	}
	return id
}

func listActiveRooms(db *gorm.DB) error {
	var rooms []models.ChatRoom
	if err := db.Where("is_active = ?", true).Order("updated_at DESC").Find(&rooms).Error; err != nil {
		return err
	}
	for i := range rooms {
		printRoom(&rooms[i])
	}
	fmt.Printf("%d active rooms.\n", len(rooms))
	return nil
}

func printRoom(room *models.ChatRoom) {
	fmt.Printf("room %d: users (%d, %d) active=%v exited=(%v, %v) updated=%s\n",
		room.ID, room.User1ID, room.User2ID, room.IsActive,
		room.User1Exited, room.User2Exited, room.UpdatedAt.Format("2006-01-02 15:04:05"))
}
