package bdd

import "github.com/cucumber/godog"

// godog run ./tests/bdd/featureFiles/chat_service.feature
// Use of godog CLI is deprecated, please use *testing.T instead.
// See https://github.com/cucumber/godog/discussions/478 for details.
// Feature: 聊天功能
//   In order to reach my classmates and instructors
//   As a signed-in learner
//   I want to browse my conversations and exchange messages

//   Background:
//     Given "userA" 已登入並取得 Token "tokenA"
//     And "userB" 已登入並取得 Token "tokenB"

//   Scenario: 由使用者列表發起對話
//     When "userA" 對 "userB" 發起對話
//     Then 對話 id 應該等於 "userB" 對 "userA" 發起的對話 id

//   Scenario: 發送與接收訊息
//     Given 已存在 1對1 對話 with "userA" and "userB"
//     When "userA" 發送訊息 "Hello B!"
//     Then "userB" 的對話列表應該顯示 "Hello B!" 且標記未讀
//     And "userB" 應該收到 message 通知

//   Scenario: 進入對話清除未讀
//     Given "userB" 的對話 with "userA" 標記未讀
//     When "userB" 進入對話
//     Then 對話列表該筆不再標記未讀

func StepDefinitioninition1(arg1, arg2 string) error {
	return godog.ErrPending
}

func StepDefinitioninition2(arg1, arg2 string) error {
	return godog.ErrPending
}

func StepDefinitioninition3(arg1, arg2 string) error {
	return godog.ErrPending
}

func StepDefinitioninition4(arg1, arg2 string) error {
	return godog.ErrPending
}

func StepDefinitioninition5(arg1 string) error {
	return godog.ErrPending
}

func token(arg1, arg2 string) error {
	return godog.ErrPending
}

func withAnd(arg1, arg2 int, arg3, arg4 string) error {
	return godog.ErrPending
}

func entersConversation(arg1 string) error {
	return godog.ErrPending
}

func InitializeChatServiceScenario(ctx *godog.ScenarioContext) {
	ctx.Step(`^"([^"]*)" 對 "([^"]*)" 發起對話$`, StepDefinitioninition1)
	ctx.Step(`^對話 id 應該等於 "([^"]*)" 對 "([^"]*)" 發起的對話 id$`, StepDefinitioninition2)
	ctx.Step(`^"([^"]*)" 發送訊息 "([^"]*)"$`, StepDefinitioninition3)
	ctx.Step(`^"([^"]*)" 的對話列表應該顯示 "([^"]*)" 且標記未讀$`, StepDefinitioninition4)
	ctx.Step(`^"([^"]*)" 應該收到 message 通知$`, StepDefinitioninition5)
	ctx.Step(`^"([^"]*)" 已登入並取得 Token "([^"]*)"$`, token)
	ctx.Step(`^已存在 (\d+)對(\d+) 對話 with "([^"]*)" and "([^"]*)"$`, withAnd)
	ctx.Step(`^"([^"]*)" 進入對話$`, entersConversation)
}
