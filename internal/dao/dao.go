package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var (
	DB          *gorm.DB      // 全局数据库连接
	RedisClient *redis.Client // 全局 Redis 连接
	MinIOClient *minio.Client // 全局 MinIO 连接
)

// MustInitMySQL 初始化 MySQL 连接并迁移表结构
func MustInitMySQL(cfg *viper.Viper) *gorm.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.GetString("mysql.user"),
		cfg.GetString("mysql.password"),
		cfg.GetString("mysql.host"),
		cfg.GetString("mysql.port"),
		cfg.GetString("mysql.dbname"),
	)
	db, err := gorm.Open(mysql.Open(dsn))
	if err != nil {
		panic(fmt.Errorf("connect db fail: %w", err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		panic(fmt.Errorf("connect db fail: %w", err))
	}
	// 设置连接池参数
	sqlDB.SetMaxIdleConns(cfg.GetInt("mysql.max_idle_conns"))
	sqlDB.SetMaxOpenConns(cfg.GetInt("mysql.max_open_conns"))
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.GetInt("mysql.max_lifetime")) * time.Second)

	if err := db.AutoMigrate(&ComparisonRecord{}); err != nil {
		panic(fmt.Errorf("migrate db fail: %w", err))
	}
	DB = db
	return db
}

// MustInitRedis 初始化 Redis 连接
func MustInitRedis(conf *viper.Viper) *redis.Client {
	addr := fmt.Sprintf("%s:%d", conf.GetString("redis.host"), conf.GetInt("redis.port"))
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: conf.GetString("redis.password"),
		DB:       conf.GetInt("redis.db"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		panic(fmt.Errorf("init redis failed, err:%w", err))
	}
	RedisClient = rdb
	return rdb
}

// MustInitMinIO 初始化 MinIO 连接
func MustInitMinIO(conf *viper.Viper) *minio.Client {
	client, err := minio.New(conf.GetString("minio.endpoint"), &minio.Options{
		Creds:  credentials.NewStaticV4(conf.GetString("minio.access_key"), conf.GetString("minio.secret_key"), ""),
		Secure: conf.GetBool("minio.use_ssl"),
	})
	if err != nil {
		panic(fmt.Errorf("init minio failed, err:%w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if bucket := conf.GetString("minio.bucket"); bucket != "" {
		if _, err := client.BucketExists(ctx, bucket); err != nil {
			panic(fmt.Errorf("init minio failed, err:%w", err))
		}
	}
	MinIOClient = client
	return client
}
