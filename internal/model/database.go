package model

import "time"

type Database struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Name       string    `json:"name"`
	Username   string    `json:"username"`
	Password   string    `json:"-"`
	Host       string    `json:"host"`
	Port       int       `json:"port"`
	CreatedAt  time.Time `json:"created_at"`
}
