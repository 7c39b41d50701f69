// Package goopenai adapts github.com/sashabaranov/go-openai to the
// langchaingo llms.Model interface, including tool calls, so the chatbot
// graph can talk to OpenAI or any compatible server (Ollama, vLLM, LM Studio).
package goopenai
