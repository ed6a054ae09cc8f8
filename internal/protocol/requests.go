package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/pixil98/go-blox/internal/world"
)

// Client request types.
const (
	TypeCreateRoom   = "create_room"
	TypeJoinRoom     = "join_room"
	TypeLeaveRoom    = "leave_room"
	TypePlayerUpdate = "player_update"
	TypeWorldCreate  = "world_create"
	TypeWorldUpdate  = "world_update"
	TypeWorldDelete  = "world_delete"
	TypeAvatarAttach = "avatar_attach"
	TypeAvatarUpdate = "avatar_update"
	TypeAvatarDelete = "avatar_delete"
	TypeSet          = "set"
	TypeDelete       = "delete"
)

type CreateRoom struct {
	Name string `json:"name"`
}

func (p *CreateRoom) Validate() error {
	p.Name = CleanName(p.Name)
	return nil
}

type JoinRoom struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (p *JoinRoom) Validate() error {
	if p.Code == "" {
		return fmt.Errorf("code is required")
	}
	p.Name = CleanName(p.Name)
	return nil
}

type LeaveRoom struct{}

func (p *LeaveRoom) Validate() error { return nil }

// PlayerUpdate carries the sender's transform at the top level of the frame.
type PlayerUpdate struct {
	Attrs world.Attributes
}

func (p *PlayerUpdate) UnmarshalJSON(data []byte) error {
	var attrs world.Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return err
	}
	p.Attrs = attrs.Without("type", "ack")
	return nil
}

func (p *PlayerUpdate) Validate() error {
	if p.Attrs.Name != nil {
		p.Attrs.Name = world.String(CleanName(*p.Attrs.Name))
	}
	return nil
}

type WorldCreate struct {
	Data *world.Attributes `json:"data"`
}

func (p *WorldCreate) Validate() error {
	if p.Data == nil {
		return fmt.Errorf("data is required")
	}
	return nil
}

type WorldUpdate struct {
	Id   string            `json:"id"`
	Data *world.Attributes `json:"data"`
}

func (p *WorldUpdate) Validate() error {
	if p.Id == "" {
		return fmt.Errorf("id is required")
	}
	if p.Data == nil {
		return fmt.Errorf("data is required")
	}
	return nil
}

type WorldDelete struct {
	Id string `json:"id"`
}

func (p *WorldDelete) Validate() error {
	if p.Id == "" {
		return fmt.Errorf("id is required")
	}
	return nil
}

type AvatarAttach struct {
	Data *world.Attributes `json:"data"`
}

func (p *AvatarAttach) Validate() error {
	if p.Data == nil {
		return fmt.Errorf("data is required")
	}
	return nil
}

type AvatarUpdate struct {
	AttId string            `json:"attId"`
	Data  *world.Attributes `json:"data"`
}

func (p *AvatarUpdate) Validate() error {
	if p.AttId == "" {
		return fmt.Errorf("attId is required")
	}
	if p.Data == nil {
		return fmt.Errorf("data is required")
	}
	return nil
}

type AvatarDelete struct {
	AttId string `json:"attId"`
}

func (p *AvatarDelete) Validate() error {
	if p.AttId == "" {
		return fmt.Errorf("attId is required")
	}
	return nil
}

// Set is the universal create-or-merge request.
type Set struct {
	Id   string            `json:"id"`
	Kind string            `json:"kind"`
	Data *world.Attributes `json:"data"`

	ParsedKind world.Kind `json:"-"`
}

func (p *Set) Validate() error {
	k, err := world.ParseKind(p.Kind)
	if err != nil {
		return err
	}
	p.ParsedKind = k
	if p.Data == nil {
		p.Data = &world.Attributes{}
	}
	return nil
}

type Delete struct {
	Id string `json:"id"`
}

func (p *Delete) Validate() error {
	if p.Id == "" {
		return fmt.Errorf("id is required")
	}
	return nil
}
