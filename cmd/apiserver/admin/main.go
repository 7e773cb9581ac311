package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"

	"schedule-go/internal/config"
	"schedule-go/internal/services"
	"schedule-go/internal/storage"
)

func usage() {
	fmt.Println("使用方法:")
	fmt.Println("  ./admin migrate up            - 应用所有未执行的迁移")
	fmt.Println("  ./admin migrate down [n]      - 回滚 n 步迁移 (默认全部)")
	fmt.Println("  ./admin migrate version       - 显示当前迁移版本")
	fmt.Println("  ./admin migrate goto <v>      - 迁移到指定版本")
	fmt.Println("  ./admin migrate force <v>     - 强制设置版本并清除 dirty 标记")
	fmt.Println("  ./admin createsuperuser <email> [password]")
	fmt.Println("  ./admin changepassword <email> [password]")
	fmt.Println("未提供密码时从标准输入读取一行。")
}

func main() {
	// 简单命令行参数解析
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	// 数据库连接
	sqlDB, err := sql.Open("postgres", storage.BuildDSN(cfg.Database))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer sqlDB.Close()

	db, err := storage.OpenWithConn(sqlDB, cfg.Database, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create GORM instance: %v", err)
	}

	ctx := context.Background()
	args := os.Args[2:]

	// 执行指定的命令
	switch os.Args[1] {
	case "migrate":
		mg, err := storage.NewMigrator(db)
		if err != nil {
			log.Fatalf("无法初始化迁移: %v", err)
		}
		runMigrate(mg, args)

	case "createsuperuser":
		if len(args) < 1 {
			log.Fatalf("需要指定邮箱")
		}
		authService := services.NewAuthService(storage.NewGormStore(db), cfg.Auth, nil)
		user, err := authService.CreateSuperuser(ctx, args[0], passwordArg(args))
		if err != nil {
			log.Fatalf("创建超级用户失败: %v", err)
		}
		fmt.Printf("超级用户已创建: ID=%d, 邮箱=%s\n", user.ID, user.Email)

	case "changepassword":
		if len(args) < 1 {
			log.Fatalf("需要指定邮箱")
		}
		authService := services.NewAuthService(storage.NewGormStore(db), cfg.Auth, nil)
		if err := authService.SetPassword(ctx, args[0], passwordArg(args)); err != nil {
			log.Fatalf("修改密码失败: %v", err)
		}
		fmt.Printf("用户 %s 的密码已更新\n", args[0])

	default:
		usage()
		log.Fatalf("未知命令: %s", os.Args[1])
	}
}

func runMigrate(mg *storage.Migrator, args []string) {
	if len(args) < 1 {
		log.Fatalf("需要指定迁移子命令: up|down|version|goto|force")
	}

	switch args[0] {
	case "up":
		if err := mg.Up(); err != nil {
			log.Fatalf("迁移失败: %v", err)
		}
	case "down":
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				log.Fatalf("无效的步数: %s", args[1])
			}
			if err := mg.Steps(-n); err != nil {
				log.Fatalf("回滚失败: %v", err)
			}
		} else if err := mg.Down(); err != nil {
			log.Fatalf("回滚失败: %v", err)
		}
	case "goto":
		if len(args) < 2 {
			log.Fatalf("需要指定版本")
		}
		v, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			log.Fatalf("无效的版本: %s", args[1])
		}
		if err := mg.Goto(uint(v)); err != nil {
			log.Fatalf("迁移到版本 %d 失败: %v", v, err)
		}
	case "force":
		if len(args) < 2 {
			log.Fatalf("需要指定版本")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("无效的版本: %s", args[1])
		}
		if err := mg.Force(v); err != nil {
			log.Fatalf("强制设置版本失败: %v", err)
		}
	case "version":
	default:
		log.Fatalf("未知迁移子命令: %s", args[0])
	}

	version, dirty, err := mg.Version()
	if err != nil {
		log.Fatalf("读取迁移版本失败: %v", err)
	}
	fmt.Printf("当前迁移版本: %d (dirty: %v)\n", version, dirty)
}

// passwordArg returns args[1] or reads one line from stdin.
func passwordArg(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	fmt.Print("Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		log.Fatalf("读取密码失败: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}
